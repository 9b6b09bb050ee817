package banner

import (
	"fmt"

	"venuedir/pkg/config"
)

const banner = `
██╗   ██╗███████╗███╗   ██╗██╗   ██╗███████╗██████╗ ██╗██████╗
██║   ██║██╔════╝████╗  ██║██║   ██║██╔════╝██╔══██╗██║██╔══██╗
██║   ██║█████╗  ██╔██╗ ██║██║   ██║█████╗  ██║  ██║██║██████╔╝
╚██╗ ██╔╝██╔══╝  ██║╚██╗██║██║   ██║██╔══╝  ██║  ██║██║██╔══██╗
 ╚████╔╝ ███████╗██║ ╚████║╚██████╔╝███████╗██████╔╝██║██║  ██║
  ╚═══╝  ╚══════╝╚═╝  ╚═══╝ ╚═════╝ ╚══════╝╚═════╝ ╚═╝╚═╝  ╚═╝
`

// Print writes the startup banner with the effective runtime settings.
func Print(cfg *config.Config, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:    %s\n", cfg.Addr())
	fmt.Printf("DB Path:   %s\n", cfg.Server.DBPath)
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}
	fmt.Printf("Retention: enabled=%v cron=%q\n", cfg.Retention.Enabled, cfg.Retention.Cron)
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET    /v1/venues?search=&city=&category=&cursor= - paginated listing")
	fmt.Println("POST   /v1/venues      - create a venue")
	fmt.Println("GET    /v1/venues/{id} - fetch a venue")
	fmt.Println("DELETE /v1/venues/{id} - soft-delete a venue")
	fmt.Println("GET    /metrics        - prometheus metrics")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl 'http://localhost%s/v1/venues?search=pizza&city=miami&limit=20'\n", cfg.Addr())
}
