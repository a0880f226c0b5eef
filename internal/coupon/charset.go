package coupon

// Charset is the alphabet every generated symbol is drawn from.
const Charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CharsetLen is the number of symbols in Charset.
const CharsetLen = len(Charset)

// symbolLookup maps every byte value to Charset[b % CharsetLen].
// 256 is not a multiple of 36, so the first four symbols (A-D) come up with
// probability 8/256 and the rest with 7/256.
var symbolLookup = func() [256]byte {
	var table [256]byte
	for i := range table {
		table[i] = Charset[i%CharsetLen]
	}
	return table
}()

var charsetMember = func() [256]bool {
	var table [256]bool
	for i := 0; i < CharsetLen; i++ {
		table[Charset[i]] = true
	}
	return table
}()

// Symbol returns the Charset symbol for a random byte.
func Symbol(b byte) byte {
	return symbolLookup[b]
}

// InCharset reports whether c is a Charset symbol.
func InCharset(c byte) bool {
	return charsetMember[c]
}

// Matches reports whether code has the shape produced for the given prefix
// and total length: the literal prefix followed only by Charset symbols.
func Matches(code, prefix string, length int) bool {
	if len(code) != length || len(code) < len(prefix) || code[:len(prefix)] != prefix {
		return false
	}
	for i := len(prefix); i < len(code); i++ {
		if !InCharset(code[i]) {
			return false
		}
	}
	return true
}
