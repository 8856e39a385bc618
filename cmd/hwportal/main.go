package main

import (
	"github.com/dp-pcs/noah-hw-mcp/cmd/hwportal/commands"
	"github.com/dp-pcs/noah-hw-mcp/lib/telemetry"
	"github.com/dp-pcs/noah-hw-mcp/lib/util/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()

	_, err := telemetry.SetupFromEnv(ctx, "hwportal")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	telemetry.InitSlog(true)
	telemetry.InstrumentPerfStats(ctx)

	commands.ExecuteContext(ctx)
}
