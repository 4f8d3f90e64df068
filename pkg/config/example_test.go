package config_test

import (
	"fmt"

	"github.com/wonny/valuescope/backend/pkg/config"
)

// ExampleAnthropicConfig_Enabled shows how handlers decide whether AI chat is available
func ExampleAnthropicConfig_Enabled() {
	cfg := config.AnthropicConfig{Model: "claude-sonnet-4-5"}
	fmt.Println(cfg.Enabled())

	cfg.APIKey = "sk-ant-example"
	fmt.Println(cfg.Enabled())
	// Output:
	// false
	// true
}
