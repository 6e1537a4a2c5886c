package controller

// Owners reports which owner currently holds live drive lines.
func (c *Controller) Owners() (manual, commutated bool) {
	manual = c.lines != nil && !c.lines.Released()
	commutated = c.engine != nil
	return manual, commutated
}
