package subscribers_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"courtwatch/internal/subscribers"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.toml")
	s, err := subscribers.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.PollingInterval() != subscribers.DefaultPollingInterval {
		t.Fatalf("want default interval, got %s", s.PollingInterval())
	}
	if len(s.Subscribers()) != 0 {
		t.Fatalf("want nobody subscribed, got %v", s.Subscribers())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("Load must not create the file, stat err=%v", err)
	}
}

func TestAddRemovePersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "bot_config.toml")
	s, err := subscribers.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"222", "111", "222"} {
		if err := s.Add(id); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SetPollingInterval(2 * time.Minute); err != nil {
		t.Fatal(err)
	}

	reloaded, err := subscribers.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	got := reloaded.Subscribers()
	if len(got) != 2 || got[0] != "111" || got[1] != "222" {
		t.Fatalf("unexpected subscribers after reload: %v", got)
	}
	if reloaded.PollingInterval() != 2*time.Minute {
		t.Fatalf("interval not persisted: %s", reloaded.PollingInterval())
	}

	removed, err := reloaded.Remove("111")
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	removed, err = reloaded.Remove("999")
	if err != nil || removed {
		t.Fatalf("removing unknown id: removed=%v err=%v", removed, err)
	}

	again, err := subscribers.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := again.Subscribers(); len(got) != 1 || got[0] != "222" {
		t.Fatalf("unexpected subscribers after remove: %v", got)
	}
}

func TestLoad_ExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.toml")
	doc := "[settings]\npolling_interval = 60\nnotify_list = [\"42\", \"7\"]\n"
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}
	s, err := subscribers.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.PollingInterval() != time.Minute {
		t.Fatalf("want 1m, got %s", s.PollingInterval())
	}
	if got := s.Subscribers(); len(got) != 2 || got[0] != "42" || got[1] != "7" {
		t.Fatalf("unexpected subscribers %v", got)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.toml")
	if err := os.WriteFile(path, []byte("[settings\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := subscribers.Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

// The server and the CLI hold separate stores over one file.
func TestStore_SeesChangesSavedByAnotherStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.toml")
	server, err := subscribers.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cli, err := subscribers.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := cli.Add("4242"); err != nil {
		t.Fatal(err)
	}
	if got := server.Subscribers(); len(got) != 1 || got[0] != "4242" {
		t.Fatalf("server did not see the new subscriber: %v", got)
	}

	if err := cli.SetPollingInterval(90 * time.Second); err != nil {
		t.Fatal(err)
	}
	if got := server.PollingInterval(); got != 90*time.Second {
		t.Fatalf("server interval = %s, want 1m30s", got)
	}

	if removed, err := cli.Remove("4242"); err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	if got := server.Subscribers(); len(got) != 0 {
		t.Fatalf("server still notifies %v", got)
	}
}

func TestStore_MutationKeepsOtherStoresChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.toml")
	first, err := subscribers.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := subscribers.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Add("111"); err != nil {
		t.Fatal(err)
	}
	if err := second.Add("22222"); err != nil {
		t.Fatal(err)
	}

	fresh, err := subscribers.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := fresh.Subscribers(); len(got) != 2 || got[0] != "111" || got[1] != "22222" {
		t.Fatalf("a stale store overwrote the file: %v", got)
	}
}

func TestStore_CorruptEditKeepsLastGoodState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.toml")
	doc := "[settings]\npolling_interval = 60\nnotify_list = [\"42\"]\n"
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}
	s, err := subscribers.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[settings\nnotify_list = ["), 0600); err != nil {
		t.Fatal(err)
	}
	if got := s.Subscribers(); len(got) != 1 || got[0] != "42" {
		t.Fatalf("subscribers after a bad edit = %v, want [42]", got)
	}
	if s.PollingInterval() != time.Minute {
		t.Fatalf("interval after a bad edit = %s", s.PollingInterval())
	}
}
