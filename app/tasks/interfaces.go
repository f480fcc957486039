package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by main in serve mode and by the API to queue on-demand runs.
// Example usage:
//
//	scheduler := NewScheduler(runner, repo, SchedulerConfig{Interval: 24 * time.Hour})
//	scheduler.Start()
//	defer scheduler.Stop()
//	id, err := scheduler.TriggerRun(TriggerAPI)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	TriggerRun(trigger Trigger) (string, error)
}
