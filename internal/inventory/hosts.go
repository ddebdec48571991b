package inventory

// Target is one master or worker node the SSH trust checker must reach.
type Target struct {
	Name string
	Addr string
	Role string
}

// targetGroups maps the groups the trust checker covers to the role label
// used in reporting. The bastion itself is not a target: the checks run
// from it.
var targetGroups = []struct {
	group string
	role  string
}{
	{"masters", "master"},
	{"workers", "worker"},
}

// TargetHosts extracts every master and worker host carrying a connection
// address, in document order.
func TargetHosts(document *Document) []Target {
	var targets []Target

	allSection, _ := mappingValue(document.Root(), "all")
	children, _ := mappingValue(allSection, "children")

	for _, entry := range targetGroups {
		groupSection, ok := mappingValue(children, entry.group)
		if !ok {
			continue
		}
		hosts, ok := mappingValue(groupSection, "hosts")
		if !ok {
			continue
		}

		for _, hostPair := range mappingPairs(hosts) {
			address, ok := stringField(hostPair[1], "ansible_host")
			if !ok {
				continue
			}
			targets = append(targets, Target{
				Name: hostPair[0].Value,
				Addr: address,
				Role: entry.role,
			})
		}
	}

	return targets
}
