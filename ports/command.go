package ports

// Address identifies a command's target operation, one of the recognised
// addresses in spec.md §6.
type Address string

// Recognised command addresses, each dispatched onto the corresponding
// listener-model method by a Dispatcher. Grounded on
// original_source/include/Connectivity/EntryPointManager.hpp's command
// routing and the per-feature setters collapsed by brt.FeatureFlags (see
// DESIGN.md's listener-model notes on SetFeatureFlags).
const (
	AddressEnableSpatialization     Address = "/listener/enableSpatialization"
	AddressEnableInterpolation      Address = "/listener/enableInterpolation"
	AddressEnableNearFieldEffect    Address = "/listener/enableNearFieldEffect"
	AddressEnableITD                Address = "/listener/enableITD"
	AddressEnableParallaxCorrection Address = "/listener/enableParallaxCorrection"
	AddressSetAmbisonicsOrder       Address = "/listener/setAmbisonicsOrder"
	AddressSetAmbisonicsNorm        Address = "/listener/setAmbisonicsNormalization"
	AddressResetBuffers             Address = "/listener/resetBuffers"
)

// Command is the tagged union of spec.md §6: one address, the listener it
// targets, and whichever of the optional typed parameters that address
// needs. Unused parameter fields are left at their zero value; a
// Dispatcher reads only the ones its address expects.
type Command struct {
	Address    Address
	ListenerID string

	Bool   bool
	Int    int
	String string
}

// EnableCommand builds a bool-parameterised command, covering every
// AddressEnable* address.
func EnableCommand(address Address, listenerID string, enable bool) Command {
	return Command{Address: address, ListenerID: listenerID, Bool: enable}
}

// AmbisonicsOrderCommand builds an AddressSetAmbisonicsOrder command.
func AmbisonicsOrderCommand(listenerID string, order int) Command {
	return Command{Address: AddressSetAmbisonicsOrder, ListenerID: listenerID, Int: order}
}

// AmbisonicsNormalizationCommand builds an AddressSetAmbisonicsNorm
// command. Valid String values are the names recognised by
// ParseAmbisonicNormalization.
func AmbisonicsNormalizationCommand(listenerID, normalization string) Command {
	return Command{Address: AddressSetAmbisonicsNorm, ListenerID: listenerID, String: normalization}
}

// ResetBuffersCommand builds an AddressResetBuffers command.
func ResetBuffersCommand(listenerID string) Command {
	return Command{Address: AddressResetBuffers, ListenerID: listenerID}
}
