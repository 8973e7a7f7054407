package command

import "testing"

func TestApp_Structure(t *testing.T) {
	app := App()
	if app.Name != "chatmesh-cli" {
		t.Errorf("Name = %q, want chatmesh-cli", app.Name)
	}

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{
		"auth", "token", "status", "sessions", "send", "logout", "contacts", "chats",
	} {
		if !names[want] {
			t.Errorf("missing command: %s", want)
		}
	}
}

func TestGlobalFlags_Defaults(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	ctx := testContext(server)
	flags := ParseGlobalFlags(ctx)
	if flags.Output != "table" {
		t.Errorf("Output = %q, want table", flags.Output)
	}
	if flags.Server == "" {
		t.Error("Server is empty")
	}
}

func TestEnsureConnected(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	client, err := EnsureConnected(testContext(server))
	if err != nil {
		t.Fatalf("EnsureConnected: %v", err)
	}
	if client.BaseURL() != server.URL {
		t.Errorf("BaseURL = %q, want %q", client.BaseURL(), server.URL)
	}
}

func TestRequireCredential_MissingToken(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	if _, err := RequireCredential(testContext(server)); err == nil {
		t.Fatal("expected error without a credential")
	}
}
