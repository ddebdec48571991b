package inventory

import (
	"fmt"
	"net/netip"

	"gopkg.in/yaml.v3"
)

// networkVars must parse as CIDR networks; host bits are allowed to be set,
// and a bare address is accepted as a degenerate single-host network.
var networkVars = []string{"control_vlan_network", "data_vlan_network"}

// addressVars must parse as single IP addresses, IPv4 or IPv6.
var addressVars = []string{
	"control_vlan_gateway",
	"data_vlan_gateway",
	"lb_vip_control",
	"lb_vip_data",
}

// hostAddressFields are the per-host fields that hold IP addresses when
// populated. Absence is the structural validator's concern, not this one's.
var hostAddressFields = []string{"ansible_host", "internal_ip", "mgmt_ip", "prod_data_ip"}

// ValidIPAddress reports whether value parses as a bare IPv4 or IPv6
// address.
func ValidIPAddress(value string) bool {
	_, err := netip.ParseAddr(value)
	return err == nil
}

// ValidIPNetwork reports whether value parses as a network in CIDR
// notation. Non-zero host bits are not rejected, and a bare address counts
// as a single-host network.
func ValidIPNetwork(value string) bool {
	if _, err := netip.ParsePrefix(value); err == nil {
		return true
	}
	return ValidIPAddress(value)
}

// ValidateAddresses semantically checks every address-bearing field in the
// document. All fields are checked exhaustively; no error stops the scan.
func ValidateAddresses(document *Document) []Finding {
	var errors []Finding
	addError := func(path, format string, args ...any) {
		errors = append(errors, Finding{Path: path, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	}

	allSection, _ := mappingValue(document.Root(), "all")
	varsSection, _ := mappingValue(allSection, "vars")

	for _, variableName := range networkVars {
		if value, ok := stringField(varsSection, variableName); ok && !ValidIPNetwork(value) {
			addError("all.vars."+variableName, "Invalid network format in %s: %s", variableName, value)
		}
	}
	for _, variableName := range addressVars {
		if value, ok := stringField(varsSection, variableName); ok && !ValidIPAddress(value) {
			addError("all.vars."+variableName, "Invalid IP address format in %s: %s", variableName, value)
		}
	}

	children, _ := mappingValue(allSection, "children")
	for _, groupPair := range mappingPairs(children) {
		groupName := groupPair[0].Value
		hosts, ok := mappingValue(groupPair[1], "hosts")
		if !ok {
			continue
		}

		for _, hostPair := range mappingPairs(hosts) {
			hostName := hostPair[0].Value
			hostVars := hostPair[1]

			for _, fieldName := range hostAddressFields {
				value, ok := stringField(hostVars, fieldName)
				if !ok || ValidIPAddress(value) {
					continue
				}
				path := fmt.Sprintf("all.children.%s.hosts.%s.%s", groupName, hostName, fieldName)
				addError(path, "Invalid IP address in %s.%s: %s", hostName, fieldName, value)
			}
		}
	}

	return errors
}

// stringField fetches a string-valued mapping entry; non-string values are
// skipped the same way absent ones are.
func stringField(node *yaml.Node, key string) (string, bool) {
	value, ok := mappingValue(node, key)
	if !ok {
		return "", false
	}
	return scalarString(value)
}
