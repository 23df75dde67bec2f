package app

import "github.com/google/uuid"

// EntropySize is the number of fresh random bytes mixed into every deal seed.
const EntropySize = 32

// settlementNamespace scopes deterministic settlement ids.
var settlementNamespace = uuid.MustParse("6f1c2a0e-7d43-4b8e-9a35-2c8d7f1e4b90")
