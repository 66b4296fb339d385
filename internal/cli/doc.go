// Package cli реализует инструмент командной строки Courier.
//
// CLI работает с Courier API по HTTP и не импортирует внутренние пакеты
// системы.
//
// Команды:
//   - task create METHOD URL --callback URL [flags]
//   - task delete TASK_ID
//   - queue clear
//
// Группы создаются фабриками (NewTaskCmd, NewQueueCmd), принимающими
// clientFn и outputFn — замыкания для ленивого создания Client и Output
// после парсинга PersistentFlags. С флагом --json данные выводятся
// в stdout в JSON, сообщения — в stderr.
package cli
