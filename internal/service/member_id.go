package service

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// memberIDAlphabet omite caracteres ambiguos (0/O, 1/I/L).
const memberIDAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const placeholderInitials = "MB"

// MemberIDGenerator deriva identificadores legibles a partir de nombre y fecha de nacimiento.
//
// Formato: dos iniciales, año (2 digitos), mes (2 digitos) y un sufijo de dos
// caracteres derivado de sha256(nombre|fecha|salt). Para el mismo salt el
// resultado es siempre el mismo; ante una colision se reintenta con salt+1.
type MemberIDGenerator struct{}

func (MemberIDGenerator) Generate(fullName string, dob time.Time, salt int) string {
	name := normalizeName(fullName)
	initials := initialsOf(name)
	if initials == "" {
		initials = placeholderInitials
	}

	var datePart string
	if dob.IsZero() {
		datePart = "0000"
	} else {
		datePart = fmt.Sprintf("%02d%02d", dob.Year()%100, int(dob.Month()))
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", name, dob.Format(time.DateOnly), salt)))
	n := binary.BigEndian.Uint32(sum[:4])
	base := uint32(len(memberIDAlphabet))
	suffix := []byte{
		memberIDAlphabet[n%base],
		memberIDAlphabet[(n/base)%base],
	}

	return initials + datePart + string(suffix)
}

func normalizeName(fullName string) string {
	return strings.Join(strings.Fields(strings.ToUpper(fullName)), " ")
}

// initialsOf toma la primera letra ASCII de la primera y la ultima palabra.
func initialsOf(name string) string {
	words := strings.Fields(name)
	var letters []byte
	for _, w := range words {
		if c, ok := firstASCIILetter(w); ok {
			letters = append(letters, c)
		}
	}
	switch len(letters) {
	case 0:
		return ""
	case 1:
		return string(letters[0]) + string(letters[0])
	default:
		return string(letters[0]) + string(letters[len(letters)-1])
	}
}

func firstASCIILetter(word string) (byte, bool) {
	// NFD separa los diacriticos: "É" -> "E" + acento.
	for _, r := range norm.NFD.String(word) {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return byte(unicode.ToUpper(r)), true
		}
	}
	return 0, false
}
