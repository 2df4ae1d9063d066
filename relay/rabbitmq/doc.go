/*
Package rabbitmq relays domain events to a RabbitMQ topic exchange.
It includes an auto-reconnecting publisher; routing keys are the relay subjects.
*/
package rabbitmq
