package tutorial

//meta:object MyObject super=QObject
//meta:signal mySignal(const QString &name)
type MyObject struct{}

//meta:slot
func (o *MyObject) MySlot(name string) {}

//meta:object SlotTutorial super=QObject
//meta:slot overload()
//meta:slot overload(int)
//meta:slot overload(double) private
//meta:slot overload(int, int) private
type SlotTutorial struct{}

//meta:slot protectedSlot protected
func (s *SlotTutorial) ProtectedSlot() {}

//meta:slot private
func (s *SlotTutorial) PrivateSlot() {}

//meta:object SignalTutorial super=QObject
//meta:signal sig1(int a, int b)
//meta:signal sig2(int a, int b)
//meta:signal overload(int a, int b)
type SignalTutorial struct{}

//meta:gadget
//meta:constructor (int, int)
//meta:constructor (void*, void* = nullptr)
type InvokableTutorial struct{}

//meta:invokable
func (t InvokableTutorial) MyInvokable() {}

//meta:gadget
//meta:enum MyEnum
type EnumTutorial struct{}

type MyEnum int

const (
	Blue MyEnum = iota
	Red
	Green
	Yellow MyEnum = 45
	Violet MyEnum = Blue + Green*3
)
