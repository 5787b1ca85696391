package notify

// Contact is the contact page message.
var Contact = &Template{
	Heading: "New Contact Form Submission:",
	Lines: []Line{
		{Label: "Name", Key: "name"},
		{Label: "Email", Key: "email"},
		{Label: "Phone", Key: "phone", Optional: true},
		{Label: "Message", Key: "message", Block: true},
	},
	Footer: Footer,
}

// FloatingContact is the slide-out panel message.
var FloatingContact = &Template{
	Heading: "New Quick Contact Message:",
	Lines: []Line{
		{Label: "Name", Key: "name"},
		{Label: "Email", Key: "email"},
		{Label: "Message", Key: "message", Block: true},
	},
	Footer: Footer,
}

// Newsletter announces a footer sign-up.
var Newsletter = &Template{
	Heading: "New Newsletter Subscription:",
	Lines: []Line{
		{Label: "Email", Key: "email"},
	},
	Footer: Footer,
}

// Distributorship is the lead application message.
var Distributorship = &Template{
	Heading: "New Distributorship Application:",
	Lines: []Line{
		{Label: "Full Name", Key: "fullName"},
		{Label: "Phone", Key: "phoneNumber"},
		{Label: "Email", Key: "email", Optional: true},
		{Label: "Business Name", Key: "businessName"},
		{Label: "City/State", Key: "cityState"},
		{Label: "Business Type", Key: "businessType"},
		{Label: "Why Interested", Key: "interestReason", Block: true},
	},
	Footer: Footer,
}
