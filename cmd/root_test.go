/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"bytes"
	"testing"
)

func TestRootCmd_Flags(t *testing.T) {
	tests := []struct {
		name         string
		flagName     string
		defaultValue string
		persistent   bool
	}{
		{name: "config flag has correct default", flagName: "config", defaultValue: "", persistent: true},
		{name: "db flag has correct default", flagName: "db", defaultValue: "", persistent: true},
		{name: "log-level flag has correct default", flagName: "log-level", defaultValue: "", persistent: true},
		{name: "port flag has correct default", flagName: "port", defaultValue: "0"},
		{name: "host flag has correct default", flagName: "host", defaultValue: ""},
		{name: "chrome-path flag has correct default", flagName: "chrome-path", defaultValue: ""},
		{name: "headless flag has correct default", flagName: "headless", defaultValue: "false"},
		{name: "start-url flag has correct default", flagName: "start-url", defaultValue: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := rootCmd.Flags()
			if tt.persistent {
				flags = rootCmd.PersistentFlags()
			}

			flag := flags.Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("Flag %s is not defined", tt.flagName)
			}

			if flag.DefValue != tt.defaultValue {
				t.Errorf("Flag %s: got %v, want %v", tt.flagName, flag.DefValue, tt.defaultValue)
			}
		})
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	want := map[string]bool{"list [video-id]": false, "export <video-id>": false, "config": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Use]; ok {
			want[cmd.Use] = true
		}
	}

	for use, found := range want {
		if !found {
			t.Errorf("Expected %q subcommand to be registered", use)
		}
	}
}

func TestRootCmd_UsageOutput(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	// Test that usage doesn't error
	err := rootCmd.Usage()
	if err != nil {
		t.Errorf("Usage() returned error: %v", err)
	}

	output := buf.String()
	if output == "" {
		t.Error("Expected usage output, got empty string")
	}
}

func TestRootCmd_CommandMetadata(t *testing.T) {
	if rootCmd.Use != "marktube" {
		t.Errorf("Expected Use to be 'marktube', got %s", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}
}
