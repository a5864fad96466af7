// cmd/cyborg/main.go
//
//	cyborg [flags]                    serve in the foreground
//	cyborg service <action> [flags]   run/install/uninstall/start/stop/restart
//	                                  as a system service
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dalemusser/cyborg/app"
	"github.com/dalemusser/cyborg/internal/app/bootstrap"
	"github.com/dalemusser/cyborg/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "service" {
		if err := runService(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}

func runService(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: cyborg service <action> [flags]; actions: %v", service.Actions)
	}
	action, flags := args[0], args[1:]

	// Installed services start as "cyborg service run <flags>".
	cfg, err := service.Config("cyborg", "CYBORG site", "CYBORG static site and contact form relay",
		append([]string{"service", "run"}, flags...))
	if err != nil {
		return err
	}
	return service.Execute(service.NewProgram(bootstrap.Hooks), cfg, action)
}
