package inventory

import (
	"os"
	"path/filepath"
	"testing"
)

// validInventoryYAML is a fully substituted, structurally complete
// inventory shared across tests.
const validInventoryYAML = `all:
  vars:
    ansible_python_interpreter: /usr/bin/python3
    control_vlan_network: 10.10.0.0/24
    control_vlan_gateway: 10.10.0.1
    data_vlan_network: 10.20.0.0/24
    data_vlan_gateway: 10.20.0.1
    lb_vip_control: 10.10.0.100
    lb_vip_data: 10.20.0.100
  children:
    bastion:
      hosts:
        bastion1:
          ansible_host: 203.0.113.10
          ansible_hostname: bastion1
          ansible_user: ubuntu
          ansible_ssh_private_key_file: ~/.ssh/id_ed25519
          internal_ip: 10.10.0.5
    masters:
      hosts:
        master1:
          ansible_host: 10.10.0.11
          ansible_hostname: master1
          ansible_user: ubuntu
          ansible_ssh_private_key_file: ~/.ssh/id_ed25519
    workers:
      hosts:
        worker1:
          ansible_host: 10.10.0.21
          ansible_hostname: worker1
          ansible_user: ubuntu
          ansible_ssh_private_key_file: ~/.ssh/id_ed25519
          mgmt_ip: 10.10.0.31
          prod_data_ip: 10.20.0.31
`

// loadDocument parses YAML content through the public Load path.
func loadDocument(t *testing.T, content string) *Document {
	t.Helper()

	path := filepath.Join(t.TempDir(), "inventory.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write inventory fixture: %v", err)
	}

	document, err := Load(path)
	if err != nil {
		t.Fatalf("load inventory fixture: %v", err)
	}
	return document
}

// messages flattens findings for easy containment checks.
func messages(findings []Finding) []string {
	result := make([]string, 0, len(findings))
	for _, finding := range findings {
		result = append(result, finding.Message)
	}
	return result
}

// containsMessage reports whether any finding carries exactly message.
func containsMessage(findings []Finding, message string) bool {
	for _, finding := range findings {
		if finding.Message == message {
			return true
		}
	}
	return false
}
