package ast

import (
	"kiln/internal/source"
)

type DeclKind uint8

const (
	DeclVar DeclKind = iota
	DeclFunc
	// DeclWrapper - синтетическая функция вокруг операторов верхнего уровня
	DeclWrapper
)

func (k DeclKind) String() string {
	switch k {
	case DeclVar:
		return "var"
	case DeclFunc:
		return "func"
	case DeclWrapper:
		return "wrapper"
	default:
		return "decl"
	}
}

type DeclFlags uint8

const (
	// DeclInvalid: анализ нашёл ошибку, кодогенерация пропускает
	DeclInvalid DeclFlags = 1 << iota
	// DeclExternal: материализовано из стартового снапшота
	DeclExternal
	// DeclPromoted: вынесено из тела обёртки в глобальную область
	DeclPromoted
)

type Decl struct {
	Kind    DeclKind
	Span    source.Span
	Name    string
	Payload PayloadID
	Flags   DeclFlags
}

// Storage says where a variable lives at run time.
type Storage uint8

const (
	StorageGlobal Storage = iota
	StorageLocal
	StorageParam
)

type VarDeclData struct {
	Type    Type
	Init    ExprID
	Storage Storage
	// Slot - индекс в кадре функции для локальных и параметров
	Slot uint32
	// Hoisted is the initializer of a promoted variable. It runs as an
	// assignment in the wrapper; printing and export still show it.
	Hoisted ExprID
}

type FuncDeclData struct {
	Result Type
	Params []DeclID
	// Body == NoStmtID для прототипа
	Body      StmtID
	FrameSize uint32
}
