package japanrealestate

import "time"

// ConsumptionTax applies to the building portion of brand-new purchases
// (developers are business operators) and to agent/management fees.
// http://www.realestate-tokyo.com/news/consumption-tax-for-property/
const ConsumptionTax = 0.08

// RestorationTax is the special tax equal to 2.1% of basic national income
// tax levied after the 2011 Tohoku earthquake.
// http://www.eytax.jp/pdf/newsletter/2011/Newsletter_Dec_2011_E.pdf
const RestorationTax = 0.021

// RestorationTaxExpiry is the date the restoration surtax stops applying.
var RestorationTaxExpiry = time.Date(2038, time.January, 1, 0, 0, 0, 0, time.UTC)
