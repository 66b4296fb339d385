// Package config читает конфигурацию процессов Courier из окружения.
//
// Конфигурация читается один раз при старте и дальше не меняется.
package config
