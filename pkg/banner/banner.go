package banner

import (
	"fmt"

	"chatrelay/pkg/config"
)

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗██████╗ ███████╗██╗      █████╗ ██╗   ██╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝██╔══██╗██╔════╝██║     ██╔══██╗╚██╗ ██╔╝
██║     ███████║███████║   ██║   ██████╔╝█████╗  ██║     ███████║ ╚████╔╝
██║     ██╔══██║██╔══██║   ██║   ██╔══██╗██╔══╝  ██║     ██╔══██║  ╚██╔╝
╚██████╗██║  ██║██║  ██║   ██║   ██║  ██║███████╗███████╗██║  ██║   ██║
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚═╝  ╚═╝╚══════╝╚══════╝╚═╝  ╚═╝   ╚═╝
`

// Print prints the startup banner with a readiness summary of the effective
// configuration.
func Print(cfg *config.Config, source, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:    %s\n", cfg.Addr())
	fmt.Printf("Directory: %s\n", orDefault(cfg.Chat.Directory, "slack"))
	fmt.Printf("Store:     %s (%s)\n", orDefault(cfg.Store.Backend, "file"), cfg.Store.Path)
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}
	if source != "" {
		fmt.Printf("Config:    %s\n", source)
	}

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/chat/relay - relay a visitor message into its thread")
	fmt.Println("GET  /v1/chat/poll?token=<t>&cursor=<c> - fetch operator replies")
	fmt.Println("POST /v1/leads - submit a lead")

	fmt.Println("\n== Production? ================================================")
	if cfg.Chat.SigningSecret != "" {
		fmt.Println("- Signing secret: OK")
	} else {
		fmt.Println("- Signing secret: MISSING (relay and poll will return 500)")
	}
	if cfg.Slack.APIToken != "" && cfg.Slack.ChannelID != "" {
		fmt.Println("- Slack credentials: OK")
	} else {
		fmt.Println("- Slack credentials: MISSING (set api_token and channel_id)")
	}
	if len(cfg.Security.APIKeys.Admin) > 0 {
		fmt.Printf("- Admin API keys: OK (%d)\n", len(cfg.Security.APIKeys.Admin))
	} else {
		fmt.Println("- Admin API keys: MISSING (admin content API unusable)")
	}
	if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}
	if cfg.Retention.Enabled {
		fmt.Printf("- Retention: enabled (cron=%s)\n", cfg.Retention.Cron)
	} else {
		fmt.Println("- Retention: disabled")
	}

	fmt.Println("\n== Logs: ======================================================")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
