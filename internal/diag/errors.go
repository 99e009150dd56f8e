package diag

import "fmt"

// Code is a stable elaboration error kind, one per spec §7 taxonomy entry.
// Names mirror ErrorGen's static methods in the original implementation
// (ym-verilog's c++-src/elaborator/main/ErrorGen.h) one-for-one.
type Code int

const (
	_ Code = iota

	// Value/type errors.
	CodeIntRequired
	CodeBvRequired
	CodeEvalError
	CodeEvalIntError

	// Constant-expression errors.
	CodeHnameInCE
	CodeSysfuncInCE
	CodeNotAParam
	CodeUsesItself
	CodeNotAConstantFunction
	CodeIllegalObjectCF

	// Name resolution.
	CodeNotFound
	CodeIllegalObject

	// Selects / ranges.
	CodeDimensionMismatch
	CodeRangeOrder
	CodeSelectOnReal
	CodeSelectForNamedEvent
	CodeSelectInPca
	CodeSelectInForce
	CodeArrayInPca
	CodeArrayInForce

	// Ports.
	CodeIllegalPort
	CodePortArray
	CodePortSizeMismatch
	CodeRealInPort
	CodeNamedPortInUdp
	CodeUdpPortNumMismatch
	CodeIllegalPortName
	CodeIllegalPinName
	CodeEmptyPortExpr

	// IO / declarations.
	CodeIllegalIO
	CodeDuplicateType
	CodeArrayIO
	CodeConflictIoRange
	CodeNoImpnet
	CodeImpnetWithInit

	// Parameters / instances / generate.
	CodeTooManyParam
	CodeNoParam
	CodeNotAParameter
	CodeIsALocalparam
	CodeCyclicDependency
	CodeInstanceNotFound
	CodeNonameModule
	CodeUdpWithParamAssign
	CodeCellWithParamAssign
	CodeTooManyItemsInPortList
	CodeDuplicateGenCaseLabels
	CodeGenvarNotFound
	CodeNotAGenvar
	CodeGenvarInUse
	CodeGenvarNegative

	// LHS restrictions.
	CodeIllegalOperatorInLhs
	CodeIllegalConstantInLhs
	CodeIllegalFuncCallInLhs
	CodeIllegalSysFuncCallInLhs

	// Event expressions.
	CodeIllegalConstantInEventExpr
	CodeIllegalFuncCallInEventExpr
	CodeIllegalSysFuncCallInEventExpr
	CodeIllegalEdgeDescriptor
	CodeIllegalRealType

	// Functions.
	CodeNoSuchFunction
	CodeNoSuchSysFunction
	CodeNotAFunction
	CodeNArgMismatch
	CodeIllegalArgumentType
	CodeNotANamedEvent
)

var codeNames = map[Code]string{
	CodeIntRequired:                   "ELAB001",
	CodeBvRequired:                    "ELAB002",
	CodeEvalError:                     "ELAB003",
	CodeEvalIntError:                  "ELAB004",
	CodeHnameInCE:                     "ELAB010",
	CodeSysfuncInCE:                   "ELAB011",
	CodeNotAParam:                     "ELAB012",
	CodeUsesItself:                    "ELAB013",
	CodeNotAConstantFunction:          "ELAB014",
	CodeIllegalObjectCF:               "ELAB015",
	CodeNotFound:                      "ELAB020",
	CodeIllegalObject:                 "ELAB021",
	CodeDimensionMismatch:             "ELAB030",
	CodeRangeOrder:                    "ELAB031",
	CodeSelectOnReal:                  "ELAB032",
	CodeSelectForNamedEvent:           "ELAB033",
	CodeSelectInPca:                   "ELAB034",
	CodeSelectInForce:                 "ELAB035",
	CodeArrayInPca:                    "ELAB036",
	CodeArrayInForce:                  "ELAB037",
	CodeIllegalPort:                   "ELAB040",
	CodePortArray:                     "ELAB041",
	CodePortSizeMismatch:              "ELAB042",
	CodeRealInPort:                    "ELAB043",
	CodeNamedPortInUdp:                "ELAB044",
	CodeUdpPortNumMismatch:            "ELAB045",
	CodeIllegalPortName:               "ELAB046",
	CodeIllegalPinName:                "ELAB047",
	CodeEmptyPortExpr:                 "ELAB048",
	CodeIllegalIO:                     "ELAB050",
	CodeDuplicateType:                 "ELAB051",
	CodeArrayIO:                       "ELAB052",
	CodeConflictIoRange:               "ELAB053",
	CodeNoImpnet:                      "ELAB054",
	CodeImpnetWithInit:                "ELAB055",
	CodeTooManyParam:                  "ELAB060",
	CodeNoParam:                       "ELAB061",
	CodeNotAParameter:                 "ELAB062",
	CodeIsALocalparam:                 "ELAB063",
	CodeCyclicDependency:              "ELAB064",
	CodeInstanceNotFound:              "ELAB065",
	CodeNonameModule:                  "ELAB066",
	CodeUdpWithParamAssign:            "ELAB067",
	CodeCellWithParamAssign:           "ELAB068",
	CodeTooManyItemsInPortList:        "ELAB069",
	CodeDuplicateGenCaseLabels:        "ELAB070",
	CodeGenvarNotFound:                "ELAB071",
	CodeNotAGenvar:                    "ELAB072",
	CodeGenvarInUse:                   "ELAB073",
	CodeGenvarNegative:                "ELAB074",
	CodeIllegalOperatorInLhs:          "ELAB080",
	CodeIllegalConstantInLhs:          "ELAB081",
	CodeIllegalFuncCallInLhs:          "ELAB082",
	CodeIllegalSysFuncCallInLhs:       "ELAB083",
	CodeIllegalConstantInEventExpr:    "ELAB090",
	CodeIllegalFuncCallInEventExpr:    "ELAB091",
	CodeIllegalSysFuncCallInEventExpr: "ELAB092",
	CodeIllegalEdgeDescriptor:         "ELAB093",
	CodeIllegalRealType:               "ELAB094",
	CodeNoSuchFunction:                "ELAB100",
	CodeNoSuchSysFunction:             "ELAB101",
	CodeNotAFunction:                  "ELAB102",
	CodeNArgMismatch:                  "ELAB103",
	CodeIllegalArgumentType:           "ELAB104",
	CodeNotANamedEvent:                "ELAB105",
}

// String returns the stable "ELABnnn" identifier for c.
func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("ELAB%03d", int(c))
}

// ElbError is the common failure surface for every elaborator generator
// method that can fail (§7). It carries enough to print one diagnostics-sink
// line: "file:line:col: ELABnnn: message".
type ElbError struct {
	Region  Region
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *ElbError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Region, e.Code, e.Message)
}

// New builds an ElbError at region r with the given code, formatting message
// the way fmt.Errorf does.
func New(r Region, code Code, format string, args ...interface{}) *ElbError {
	return &ElbError{Region: r, Code: code, Message: fmt.Sprintf(format, args...)}
}
