package main

import "strings"

// friendlyRelayErr normalizes common relay errors for readable CLI output.
func friendlyRelayErr(s string) string {
	ls := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(ls, "unsupported: eth_callbundle"), strings.Contains(ls, "invalid method"), strings.Contains(ls, "method not found"):
		return "simulation not supported by relay"
	case strings.Contains(ls, "insufficient funds for gas"):
		return "insufficient ETH for gas"
	case strings.Contains(ls, "invalid character '<'"), strings.Contains(ls, "non-json"):
		return "non-JSON/HTML response (proxy/cf?)"
	case strings.Contains(ls, "dial tcp"), strings.Contains(ls, "lookup "):
		return "network/DNS error"
	case strings.Contains(ls, "nonce superseded"):
		return "account nonce already used on chain"
	}
	return s
}
