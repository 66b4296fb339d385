// Package tasks — фасад приёма и администрирования task.
//
// Service валидирует входные данные, присваивает task идентификатор
// и ставит её в очередь; удаление и очистка делегируются worker.Service.
package tasks
