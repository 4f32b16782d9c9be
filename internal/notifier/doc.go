// Package notifier announces newly found records.
//
// A Notifier receives the records that were not in the previous snapshot.
// WebhookNotifier posts one JSON message per record to an incoming-webhook
// URL (Slack, Discord and most chat tools accept the payload), pacing the
// posts. DryRunNotifier writes the same messages to a writer instead.
package notifier
