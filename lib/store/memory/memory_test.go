package memory

import (
	"testing"

	"github.com/architectjyothi/overledger-sdk-go/lib/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, New())
}
