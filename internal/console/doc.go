// Package console — общий вывод в терминал для всех частей программы.
// Держит одну "статусную" строку, которая переживает обычные лог-строки:
// перед каждой записью строка очищается, после — статус рисуется заново.
//
// Конкурентность: главный цикл соединения и фоновый опрос Steam пишут
// в одну консоль; всё сериализовано одним мьютексом, общего состояния
// между ними кроме консоли нет.
//
// Пример:
//
//	con := console.New()
//	_ = con.SetStatus("2 guests connected")
//	_ = con.Println("✓ Connected to the server!")
//	// статус снова внизу
package console
