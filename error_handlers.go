package prioritypool

import (
	lg "github.com/Andrej220/go-utils/zlog"
)

// reportInternalError reports an internal pool error.
//
// Internal errors are non-task failures such as worker setup issues.
// They are logged and passed to OnInternalError if one is registered.
func (p *Pool) reportInternalError(err error) {
	lg.FromContext(p.opts.LogContext).Error("internal pool error", lg.Any("error", err))
	if p.opts.OnInternalError != nil {
		p.opts.OnInternalError(err)
	}
}

// reportTaskError reports the final error of a task after all attempts.
// Task errors never stop the pool.
func (p *Pool) reportTaskError(err *TaskError) {
	if p.opts.OnTaskError != nil {
		p.opts.OnTaskError(err)
	}
}
