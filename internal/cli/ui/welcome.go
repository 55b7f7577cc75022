package ui

import (
	"fmt"
	"io"
)

// PrintWelcome выводит приветствие
func PrintWelcome(w io.Writer) {
	fmt.Fprintln(w, ColorBold+IconDocument+" emiteNota"+ColorReset)
	fmt.Fprintln(w, ColorGray+"Эмиссия NFS-e в WebISS по данным boleto"+ColorReset)
	fmt.Fprintln(w)
	PrintHelp(w)
	fmt.Fprintln(w, ColorCyan+IconBulb+" Совет:"+ColorReset+" загрузите таблицу командой "+ColorYellow+"load"+ColorReset+
		", отметьте строки и запустите "+ColorYellow+"run"+ColorReset+"; "+ColorYellow+"stop"+ColorReset+" остановит партию после текущей записи")
	fmt.Fprintln(w)
	fmt.Fprintln(w, ColorGray+"⬆️ ⬇️"+ColorReset+" Используйте стрелки для навигации по истории команд")
	fmt.Fprintln(w)
}

// PrintHelp выводит список доступных команд
func PrintHelp(w io.Writer) {
	fmt.Fprintln(w, ColorYellow+IconList+" Доступные команды:"+ColorReset)
	fmt.Fprintln(w, "  "+ColorGreen+"load"+ColorReset+" <файл>         - Загрузить записи (.csv, .xlsx)")
	fmt.Fprintln(w, "  "+ColorGreen+"list"+ColorReset+"                - Строки обзора и последние результаты")
	fmt.Fprintln(w, "  "+ColorGreen+"toggle"+ColorReset+" <строки>     - Переключить отметку (I001, 3, 2-5)")
	fmt.Fprintln(w, "  "+ColorGreen+"all"+ColorReset+"                 - Отметить все")
	fmt.Fprintln(w, "  "+ColorGreen+"none"+ColorReset+"                - Снять все отметки")
	fmt.Fprintln(w, "  "+ColorGreen+"invert"+ColorReset+"              - Инвертировать отметки")
	fmt.Fprintln(w, "  "+ColorGreen+"run"+ColorReset+"                 - Эмитировать отмеченные записи")
	fmt.Fprintln(w, "  "+ColorGreen+"stop"+ColorReset+"                - Остановить партию после текущей записи")
	fmt.Fprintln(w, "  "+ColorGreen+"report"+ColorReset+"              - Отчёт последней партии")
	fmt.Fprintln(w, "  "+ColorGreen+"clear"+ColorReset+"               - Очистить экран")
	fmt.Fprintln(w, "  "+ColorGreen+"exit"+ColorReset+"                - Выход")
	fmt.Fprintln(w)
}
