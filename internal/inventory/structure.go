package inventory

import "fmt"

// RequiredVars lists the variables every inventory must define under
// all.vars.
var RequiredVars = []string{
	"ansible_python_interpreter",
	"control_vlan_network",
	"control_vlan_gateway",
	"data_vlan_network",
	"data_vlan_gateway",
	"lb_vip_control",
	"lb_vip_data",
}

// RequiredGroups lists the host groups every inventory must define, in
// reporting order.
var RequiredGroups = []string{"bastion", "masters", "workers"}

// requiredHostFields maps each group to the per-host fields its members
// must carry.
var requiredHostFields = map[string][]string{
	"bastion": {
		"ansible_host", "ansible_hostname", "ansible_user",
		"ansible_ssh_private_key_file", "internal_ip",
	},
	"masters": {
		"ansible_host", "ansible_hostname", "ansible_user",
		"ansible_ssh_private_key_file",
	},
	"workers": {
		"ansible_host", "ansible_hostname", "ansible_user",
		"ansible_ssh_private_key_file", "mgmt_ip", "prod_data_ip",
	},
}

// ValidateStructure checks required sections, groups, and per-host fields.
// It accumulates every violation it can still meaningfully detect instead of
// stopping at the first one, so a single run surfaces all the edits an
// operator has to make.
func ValidateStructure(document *Document) (errors, warnings []Finding) {
	addError := func(path, format string, args ...any) {
		errors = append(errors, Finding{Path: path, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	}
	addWarning := func(path, format string, args ...any) {
		warnings = append(warnings, Finding{Path: path, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
	}

	allSection, ok := mappingValue(document.Root(), "all")
	if !ok {
		addError("", "Missing 'all' section at top level")
		return errors, warnings
	}

	varsSection, ok := mappingValue(allSection, "vars")
	if !ok {
		addError("all", "Missing 'vars' section in 'all'")
	} else {
		for _, variableName := range RequiredVars {
			if _, present := mappingValue(varsSection, variableName); !present {
				addError("all.vars", "Missing required variable: %s", variableName)
			}
		}
	}

	// Without 'children' the group checks have nothing to walk.
	children, ok := mappingValue(allSection, "children")
	if !ok {
		addError("all", "Missing 'children' section in 'all'")
		return errors, warnings
	}

	for _, groupName := range RequiredGroups {
		groupPath := "all.children." + groupName

		groupSection, ok := mappingValue(children, groupName)
		if !ok {
			addError("all.children", "Missing required group: %s", groupName)
			continue
		}

		hosts, ok := mappingValue(groupSection, "hosts")
		if !ok {
			addError(groupPath, "Missing 'hosts' section in group '%s'", groupName)
			continue
		}

		if isEmptyCollection(hosts) {
			addWarning(groupPath+".hosts", "Group '%s' has no hosts defined", groupName)
			continue
		}

		for _, hostPair := range mappingPairs(hosts) {
			hostName := hostPair[0].Value
			hostVars := hostPair[1]
			hostPath := groupPath + ".hosts." + hostName

			for _, fieldName := range requiredHostFields[groupName] {
				if _, present := mappingValue(hostVars, fieldName); !present {
					addError(hostPath, "Host '%s' (%s) missing required field: %s", hostName, groupName, fieldName)
				}
			}
		}
	}

	return errors, warnings
}
