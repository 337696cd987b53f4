package service

import "math/rand/v2"

// LinkCodeAlphabet is the symbol set of registry linking codes.
const LinkCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// LinkCodeLength is the number of symbols in a linking code.
const LinkCodeLength = 5

// CodeGenerator produces registry linking codes.
type CodeGenerator func() string

// NewCodeGenerator draws each symbol uniformly from LinkCodeAlphabet using intn.
// A nil intn falls back to math/rand; codes are not unique.
func NewCodeGenerator(intn func(n int) int) CodeGenerator {
	if intn == nil {
		intn = rand.IntN
	}
	return func() string {
		code := make([]byte, LinkCodeLength)
		for i := range code {
			code[i] = LinkCodeAlphabet[intn(len(LinkCodeAlphabet))]
		}
		return string(code)
	}
}
