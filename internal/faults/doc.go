// Package faults — единая точка нормализации ошибок.
//
// Транспортный слой и executor возвращают ошибки из закрытого множества
// (TransportFault, AggregateFault, GenericFault, UnknownFault).
// Classify превращает любую из них (а также произвольный error или
// значение) в NormalizedError, по которой воркер принимает решение о retry.
// Код ниже по потоку никогда не ветвится по конкретному типу ошибки.
package faults
