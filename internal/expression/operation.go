package expression

import (
	"sort"

	"github.com/samber/lo"
)

type Operator uint8

const (
	Add Operator = iota
	Sub
	Mul
	Div
)

var operatorSymbolMap = map[Operator]string{
	Add: "+",
	Sub: "-",
	Mul: "*",
	Div: "/",
}

var symbolOperatorMap = lo.Invert(operatorSymbolMap)

// x is the second-to-top of the stack and y the top.
var operatorFuncs = [...]func(x, y float64) float64{
	Add: func(x, y float64) float64 { return x + y },
	Sub: func(x, y float64) float64 { return x - y },
	Mul: func(x, y float64) float64 { return x * y },
	Div: func(x, y float64) float64 { return x / y },
}

func (op Operator) String() string {
	return operatorSymbolMap[op]
}

func (op Operator) apply(x, y float64) float64 {
	return operatorFuncs[op](x, y)
}

// OperatorSymbols returns the accepted operator symbols in a stable order.
func OperatorSymbols() []string {
	symbols := lo.Keys(symbolOperatorMap)
	sort.Strings(symbols)
	return symbols
}
