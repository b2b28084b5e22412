package netspec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeNetworkFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "networks.txt")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing network file: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Run("skips comments blanks and invalid lines", func(t *testing.T) {
		path := writeNetworkFile(t, strings.Join([]string{
			"# internal segments",
			"",
			"10.0.0.0/24",
			"not-a-network",
			"192.168.1.1-192.168.1.20",
			"  ",
		}, "\n"))

		specs, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		want := []string{"10.0.0.0/24", "192.168.1.1-192.168.1.20"}
		if len(specs) != len(want) {
			t.Fatalf("got %v, want %v", specs, want)
		}
		for i := range want {
			if specs[i] != want[i] {
				t.Errorf("specs[%d] = %q, want %q", i, specs[i], want[i])
			}
		}
	})

	t.Run("deduplicates normalized specs", func(t *testing.T) {
		path := writeNetworkFile(t, "10.0.0.0/24\n10.0.0.1/24\n")
		specs, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		if len(specs) != 1 || specs[0] != "10.0.0.0/24" {
			t.Errorf("got %v, want [10.0.0.0/24]", specs)
		}
	})

	t.Run("file with no valid specs fails", func(t *testing.T) {
		path := writeNetworkFile(t, "# only comments\nbogus\n")
		if _, err := LoadFromFile(path); err == nil {
			t.Fatal("LoadFromFile() should fail when nothing is valid")
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
			t.Fatal("LoadFromFile() should fail for a missing file")
		}
	})
}

func TestGenerateRFC1918(t *testing.T) {
	networks := GenerateRFC1918()

	// 256 blocks under 192.168/16, 256 under 10.0/16, 16*16 under 172.16/12.
	if len(networks) != 256+256+256 {
		t.Fatalf("got %d networks, want 768", len(networks))
	}
	if networks[0] != "192.168.0.0/24" {
		t.Errorf("first = %q, want 192.168.0.0/24", networks[0])
	}
	if networks[len(networks)-1] != "172.31.15.0/24" {
		t.Errorf("last = %q, want 172.31.15.0/24", networks[len(networks)-1])
	}
	for _, n := range networks {
		if !ValidateCIDR(n) {
			t.Fatalf("generated invalid CIDR %q", n)
		}
	}
}
