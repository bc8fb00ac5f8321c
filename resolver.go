package portal

import "github.com/karagenc/portal-go/transport"

// resolve walks the candidates of the attempt and returns the first
// transport a factory accepts to create, or nil if every candidate
// declined.
func (s *Socket) resolve(a *attempt) transport.Transport {
	for len(a.candidates) > 0 {
		name := a.candidates[0]
		a.candidates = a.candidates[1:]
		a.SetData("candidates", append([]string(nil), a.candidates...))

		if a.expanded.Contains(name) {
			s.debug.Log("Skipping facade that was already expanded", name)
			continue
		}
		factory, ok := s.config.Factories[name]
		if !ok || factory == nil {
			s.debug.Log("Unknown transport", name)
			continue
		}

		a.name = name
		a.SetData("transport", name)
		a.SetData("url", s.buildURL(name, nil))

		if t := factory(a); t != nil {
			s.debug.Log("Using transport", name)
			return t
		}
	}
	return nil
}
