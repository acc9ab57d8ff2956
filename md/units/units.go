// Package units holds physical constants shared by the force-evaluation
// packages. Quantities follow the MD convention of nanometers, kilojoules
// per mole, and elementary charges.
package units

// One4PiEps0 is the Coulomb prefactor 1/(4*pi*eps0) in kJ*nm/(mol*e^2).
const One4PiEps0 = 138.935456
