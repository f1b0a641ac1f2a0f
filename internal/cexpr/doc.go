// Package cexpr evaluates the integer constant expressions of #if and #elif.
// Values follow intmax_t/uintmax_t semantics and '&&', '||' and '?:'
// short-circuit, so division by zero is only an error in an evaluated operand.
package cexpr
