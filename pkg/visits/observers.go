package visits

import "slices"

// Callback receives every result dispatched by a Request.
type Callback func(Result)

// Token identifies a registered observer for removal. The zero Token is
// never issued.
type Token uint64

type observer struct {
	token Token
	fn    Callback
}

// observers is the ordered registry of callbacks. The same function may be
// registered more than once; each registration is invoked separately.
type observers struct {
	list []observer
	last Token
}

func (o *observers) add(fn Callback) Token {
	o.last++
	o.list = append(o.list, observer{token: o.last, fn: fn})
	return o.last
}

func (o *observers) remove(token Token) bool {
	i := slices.IndexFunc(o.list, func(obs observer) bool { return obs.token == token })
	if i < 0 {
		return false
	}
	o.list = slices.Delete(o.list, i, i+1)
	return true
}

func (o *observers) len() int {
	return len(o.list)
}

// dispatch invokes a snapshot of the registry so callbacks may register or
// remove observers while a dispatch is in progress.
func (o *observers) dispatch(res Result) {
	snapshot := slices.Clone(o.list)
	for _, obs := range snapshot {
		obs.fn(res)
	}
}
