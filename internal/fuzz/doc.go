
// Package fuzztests houses Go fuzz harnesses that exercise the front of the
// raven pipeline (source -> lexer -> parser). Its goal is to smoke test
// robustness and guard against panics, hangs and broken spans on arbitrary
// inputs.
//
// Назначение: запускать fuzz-обработчики, которые загружают байты в FileSet и
// прогоняют их через лексер/парсер.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/lexer, internal/parser, internal/diag,
// internal/testkit.

package fuzztests
