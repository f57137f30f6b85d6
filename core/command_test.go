package core

import (
	"strings"
	"testing"

	"fungen/protocol"
)

func TestCommandRegistry(t *testing.T) {
	registry := NewCommandRegistry()

	var called bool
	id := registry.Register("test_command", "arg=%u", func(data *[]byte) error {
		called = true
		return nil
	})
	if id != 0 {
		t.Errorf("Expected first command to have ID 0, got %d", id)
	}

	cmd, ok := registry.GetCommand(id)
	if !ok {
		t.Fatal("Failed to retrieve registered command")
	}
	if cmd.Name != "test_command" {
		t.Errorf("Expected command name 'test_command', got '%s'", cmd.Name)
	}

	var data []byte
	if err := registry.Dispatch(id, &data); err != nil {
		t.Errorf("Dispatch failed: %v", err)
	}
	if !called {
		t.Error("Command handler was not called")
	}

	if err := registry.Dispatch(999, &data); err != ErrUnknownCommand {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}
}

func TestCommandRegistryDuplicateName(t *testing.T) {
	registry := NewCommandRegistry()
	id1 := registry.Register("a", "", func(*[]byte) error { return nil })
	id2 := registry.Register("b", "", func(*[]byte) error { return nil })
	id3 := registry.Register("a", "x=%u", func(*[]byte) error { return nil })

	if id1 != 0 || id2 != 1 || id3 != 0 {
		t.Errorf("Unexpected IDs: %d, %d, %d", id1, id2, id3)
	}
	if registry.Count() != 2 {
		t.Errorf("Expected 2 commands, got %d", registry.Count())
	}
}

func TestResponsesAreNotDispatchable(t *testing.T) {
	registry := NewCommandRegistry()
	id := registry.RegisterResponse("status", "v=%u")
	var data []byte
	if err := registry.Dispatch(id, &data); err == nil {
		t.Error("Dispatching a response should fail")
	}
}

func TestCommandRegistryDictionary(t *testing.T) {
	registry := NewCommandRegistry()
	registry.RegisterResponse("identify_response", "offset=%u data=%*s")
	registry.Register("identify", "offset=%u count=%c", func(*[]byte) error { return nil })
	registry.Register("arb_run", "", func(*[]byte) error { return nil })

	dict := string(registry.Dictionary("7"))
	want := `{"version":"7","commands":{"identify offset=%u count=%c":1,"arb_run":2},` +
		`"responses":{"identify_response offset=%u data=%*s":0}}`
	if dict != want {
		t.Errorf("Dictionary mismatch:\n got %s\nwant %s", dict, want)
	}
	t.Logf("Dictionary: %s", dict)
}

func TestCommandWithArguments(t *testing.T) {
	registry := NewCommandRegistry()

	var receivedValue uint32
	id := registry.Register("test_args", "value=%u", func(data *[]byte) error {
		val, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		receivedValue = val
		return nil
	})

	output := protocol.NewScratchOutput()
	protocol.EncodeVLQUint(output, 12345)
	data := output.Result()

	if err := registry.Dispatch(id, &data); err != nil {
		t.Errorf("Dispatch failed: %v", err)
	}
	if receivedValue != 12345 {
		t.Errorf("Expected value 12345, got %d", receivedValue)
	}
}

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 7: "7", -7: "-7", 1234567: "1234567", -90: "-90"}
	for in, want := range cases {
		if got := itoa(in); got != want {
			t.Errorf("itoa(%d) = %q, want %q", in, got, want)
		}
	}
	if !strings.HasPrefix(itoa(-9223372036854775807), "-922") {
		t.Error("itoa lost the sign on a large negative")
	}
}
