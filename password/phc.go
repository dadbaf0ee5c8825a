package password

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash is returned for stored hashes that are not a supported
// argon2id PHC string.
var ErrMalformedHash = errors.New("malformed password hash")

// PHC is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$hash" string.
type PHC struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	Salt        []byte
	Key         []byte
}

// String encodes p in PHC form with standard padded base64.
func (p PHC) String() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version,
		p.Memory, p.Time, p.Parallelism,
		base64.StdEncoding.EncodeToString(p.Salt),
		base64.StdEncoding.EncodeToString(p.Key),
	)
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedHash, reason)
}

// ParsePHC decodes s. Parameters below the hasher's cost floor are rejected
// so a tampered record cannot make verification trivially cheap.
func ParsePHC(s string) (PHC, error) {
	fields := strings.Split(s, "$")
	if len(fields) != 6 || fields[0] != "" {
		return PHC{}, malformed("expected 5 $-separated fields")
	}
	if fields[1] != algorithmID {
		return PHC{}, malformed("unsupported algorithm " + strconv.Quote(fields[1]))
	}

	v, ok := strings.CutPrefix(fields[2], "v=")
	if !ok {
		return PHC{}, malformed("missing version")
	}
	if n, err := strconv.Atoi(v); err != nil || n != argon2.Version {
		return PHC{}, malformed("unsupported version " + strconv.Quote(v))
	}

	var p PHC
	if err := p.parseParams(fields[3]); err != nil {
		return PHC{}, err
	}

	var err error
	if p.Salt, err = base64.StdEncoding.DecodeString(fields[4]); err != nil {
		return PHC{}, malformed("salt encoding")
	}
	if len(p.Salt) < int(minSaltLength) {
		return PHC{}, malformed("salt too short")
	}
	if p.Key, err = base64.StdEncoding.DecodeString(fields[5]); err != nil {
		return PHC{}, malformed("key encoding")
	}
	if len(p.Key) == 0 {
		return PHC{}, malformed("empty key")
	}
	return p, nil
}

func (p *PHC) parseParams(s string) error {
	seen := map[string]bool{}
	for _, pair := range strings.Split(s, ",") {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return malformed("parameter " + strconv.Quote(pair))
		}
		if seen[name] {
			return malformed("duplicate parameter " + name)
		}
		seen[name] = true

		switch name {
		case "m":
			n, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || n < uint64(minMemoryKB) {
				return malformed("memory parameter")
			}
			p.Memory = uint32(n)
		case "t":
			n, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || n < uint64(minTimeCost) {
				return malformed("time parameter")
			}
			p.Time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(raw, 10, 8)
			if err != nil || n < uint64(minParallelism) {
				return malformed("parallelism parameter")
			}
			p.Parallelism = uint8(n)
		default:
			return malformed("unknown parameter " + strconv.Quote(name))
		}
	}
	if !seen["m"] || !seen["t"] || !seen["p"] {
		return malformed("missing parameters")
	}
	return nil
}
