// Package ext defines the extension system for vidqueue.
//
// Extensions are notified of job lifecycle events and can react to them:
// recording metrics, alerting on dropped jobs, writing audit logs.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type DropAlert struct{}
//
//	func (e *DropAlert) Name() string { return "drop-alert" }
//
//	func (e *DropAlert) OnJobDropped(ctx context.Context, j job.Job, d retry.Disposition) error {
//	    log.Printf("job %s dropped: %s", j.ID, d)
//	    return nil
//	}
//
// # Job Lifecycle Hooks
//
//   - [JobAcknowledged]: the job succeeded or was already done upstream
//   - [JobRetrying]: the job will be made visible again after a delay
//   - [JobDropped]: the media API rejected the job with a 400; it is
//     acknowledged and never retried
//   - [JobRejected]: the job failed validation and no call was made
//
// # Other Hooks
//
//   - [BatchProcessed]: a pull/process/report pass finished
//   - [Shutdown]: the consumer is stopping
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
