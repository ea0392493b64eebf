// Package alerts implements threshold rules over each machine's latest
// reading and webhook delivery of fired and resolved alerts to Teams, Slack
// or generic HTTP targets.
package alerts
