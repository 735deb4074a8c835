package cache

import (
	"crypto/sha512"
	"encoding/base64"

	"github.com/ugorji/go/codec"

	"go.polydawn.net/hutch/def"
)

/*
	Fingerprint identifies the result of applying a step sequence: the
	fingerprint of step i is the hash of step i's canonical serial form
	chained with the fingerprint of step i-1.

	Two step sequences sharing a prefix share the prefix's fingerprints, so
	a change to step k invalidates fingerprints k..n-1 only and everything
	before k remains reusable.
*/
type Fingerprint string

// Bump this to invalidate every cache on the planet.  Folded into the chain
// seed along with any caller-supplied salt.
const chainSeed = "hutch/rootfs/v1"

var hasherFactory = sha512.New384

var canonicalHandle = func() *codec.JsonHandle {
	h := &codec.JsonHandle{}
	h.Canonical = true
	return h
}()

/*
	ChainFingerprints computes the full fingerprint chain for a step
	sequence.  Returned slice index i is the fingerprint after steps 0..i.

	Only the literal canonical step data is hashed.  Callers with a stricter
	notion of "relevant input" (say, pinned package versions fetched from
	elsewhere) fold it in via the salt; the engine itself never guesses.
*/
func ChainFingerprints(steps []def.Step, salt string) []Fingerprint {
	prev := seedFingerprint(salt)
	fps := make([]Fingerprint, len(steps))
	for i, step := range steps {
		prev = chainStep(prev, step)
		fps[i] = prev
	}
	return fps
}

func seedFingerprint(salt string) Fingerprint {
	hasher := hasherFactory()
	hasher.Write([]byte(chainSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(salt))
	return Fingerprint(base64.URLEncoding.EncodeToString(hasher.Sum(nil)))
}

func chainStep(prev Fingerprint, step def.Step) Fingerprint {
	var canonical []byte
	if err := codec.NewEncoderBytes(&canonical, canonicalHandle).Encode(def.StepEnvelope(step)); err != nil {
		// canonicalizing plain maps of plain data does not fail.
		panic(Error.Wrap(err))
	}
	hasher := hasherFactory()
	hasher.Write(canonical)
	hasher.Write([]byte{0})
	hasher.Write([]byte(prev))
	return Fingerprint(base64.URLEncoding.EncodeToString(hasher.Sum(nil)))
}
