package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"intercom-cli/internal/client"
	"intercom-cli/internal/config"
	"intercom-cli/internal/coordinator"
	"intercom-cli/internal/store"
)

// setupCoordinator opens the cache and wires it to the backend client.
// Local-only commands pass needRemote=false and may run unconfigured.
// The returned cleanup closes the cache.
func setupCoordinator(needRemote bool) (*coordinator.Coordinator, func()) {
	settings := config.Load()

	if needRemote && settings.BaseURL == "" {
		fmt.Println("Error: " + config.ErrNoBaseURL.Error())
		os.Exit(1)
	}

	cache := openStore(settings)
	api := client.New(client.ClientConfig{
		BaseURL:      settings.BaseURL,
		ProbeTimeout: settings.ProbeTimeout,
	})

	return coordinator.New(api, cache, nil), func() { cache.Close() }
}

func openStore(settings config.Settings) *store.Store {
	if err := os.MkdirAll(settings.CacheDir, 0o700); err != nil {
		fmt.Printf("Error creating cache directory: %v\n", err)
		os.Exit(1)
	}

	cache, err := store.Open(store.Config{Dir: settings.CacheDir})
	if err != nil {
		fmt.Printf("Error opening cache: %v\n", err)
		os.Exit(1)
	}
	return cache
}

// printJSON writes v to stdout when --json is set and reports whether it did.
func printJSON(v interface{}) bool {
	if !jsonOutput {
		return false
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Printf("Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
	return true
}

// describeError renders fetch and cache errors for the terminal.
func describeError(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrOffline):
		return "backend unreachable, no request was sent"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("%s %d: %s (%s)", apiErr.Type, apiErr.Code, apiErr.Message, apiErr.Request)
	default:
		return err.Error()
	}
}
