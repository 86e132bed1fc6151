// Package relay реализует клиента сервера-реле: одно исходящее
// WebSocket-соединение, которое клиент устанавливает, сторожит и
// восстанавливает сам.
//
// Жизненный цикл одной попытки: Connecting → Connected → Reading →
// {Closed | Failed}. Рукопожатие ограничено таймаутом (10s), ожидание
// фрейма — idle-таймаутом (60s). Фреймы: Ping — немедленный Pong и
// сброс backoff; Close — чистое завершение попытки; Text — JSON-конверт
// ServerMessage и последовательная диспетчеризация в Handler; остальное
// игнорируется.
//
// Поверх попыток крутится супервизор Run: пауза между попытками растёт
// экспоненциально (retry.Backoff) и сбрасывается при любом признаке
// живого соединения. Отказ рукопожатия с кодом 400 несёт структурную
// причину в заголовке X-Error — classifyHandshake показывает её
// пользователю (включая уведомление об устаревшей версии с открытием
// ссылки на скачивание), после чего попытки продолжаются как обычно.
package relay
