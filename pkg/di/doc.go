// Package di builds the object graph of a forum admin process from
// config.Config: cache backend, registry, remote client, cached client and the
// thread and post managers. Metrics and loggers are threaded through every
// component.
package di
