package core

// Itoa formats n in decimal without fmt, for firmware log lines.
func Itoa(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	if negative {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}

// Utoa formats an unsigned counter in decimal
func Utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[pos:])
}

// Ftoa formats a voltage-sized float with two decimals
func Ftoa(f float32) string {
	negative := f < 0
	if negative {
		f = -f
	}
	cents := int(f*100 + 0.5)
	frac := cents % 100

	s := Itoa(cents/100) + "."
	if frac < 10 {
		s += "0"
	}
	s += Itoa(frac)
	if negative {
		s = "-" + s
	}
	return s
}
