package orders

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order and transaction ids are human-legible (they show up in invoice
// descriptions and payment receipts): PREFIX-<ms timestamp base36>-<random>.
func newID(prefix string) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return strings.ToUpper(prefix + "-" + ts + "-" + random)
}

func NewOrderID() string       { return newID("ORD") }
func NewTransactionID() string { return newID("TXN") }
