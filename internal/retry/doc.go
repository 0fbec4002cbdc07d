// Package retry hands stubbed decrypts to whatever asks the sender to
// resend. LogNotifier only records the hint; AMQPNotifier publishes it to a
// RabbitMQ topic exchange as JSON, with the hint id as message id.
package retry
