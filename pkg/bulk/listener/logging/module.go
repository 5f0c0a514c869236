package logging

import (
	"go.uber.org/fx"

	port "github.com/callscope/callscope/pkg/bulk/core/application/port"
)

// Module provides the logging listeners, tagged into the listener groups
// the coordinator collects.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLoggingRunListener,
		fx.As(new(port.RunListener)),
		fx.ResultTags(`group:"run_listeners"`),
	)),
	fx.Provide(fx.Annotate(
		NewLoggingProgressListener,
		fx.As(new(port.ProgressListener)),
		fx.ResultTags(`group:"progress_listeners"`),
	)),
)
