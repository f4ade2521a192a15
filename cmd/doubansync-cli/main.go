package main

import (
	"context"

	"doubansync-backend/cmd/doubansync-cli/commands"
	"doubansync-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "doubansync-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
