package cli

import (
	"fmt"
	"os"

	"github.com/quillworks/scribebot/internal/config"
)

// RunStatus displays the current configuration status with styled output.
func RunStatus(cfg *config.Config) {
	cfgPath := config.ConfigPath()

	fmt.Println()
	fmt.Println(TitleStyle.Render(fmt.Sprintf("  %s scribebot Status", Logo)))
	fmt.Println()

	fmt.Printf("  %-12s %s  %s\n", "Config", StatusBadge(fileExists(cfgPath)), DimStyle.Render(cfgPath))
	fmt.Printf("  %-12s %s\n", "Model", cfg.Agent.Model)
	fmt.Printf("  %-12s %s\n", "Chat API", DimStyle.Render(cfg.Chat.APIBase))
	fmt.Println()

	fmt.Println("  " + BoldStyle.Render("Credentials"))
	fmt.Printf("    %s  Chat platform\n", StatusBadge(cfg.Chat.APIKey != ""))
	fmt.Printf("    %s  Completion provider\n", StatusBadge(cfg.Provider.APIKey != ""))
	fmt.Println()

	fmt.Println("  " + BoldStyle.Render("Supervisor"))
	if cfg.Supervisor.IdleTimeoutS > 0 {
		fmt.Printf("    %s  Idle sweep (%ds timeout)\n", StatusBadge(true), cfg.Supervisor.IdleTimeoutS)
	} else {
		fmt.Printf("    %s  Idle sweep %s\n", StatusBadge(false), DimStyle.Render("(disabled)"))
	}
	fmt.Println()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
