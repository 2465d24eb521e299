package styles

// SlideshowID is the element id of the navigation style block.
const SlideshowID = "slideshow-styles"

// SlideshowCSS styles the active and hover states of navigation entries.
const SlideshowCSS = `
.nav-item {
    cursor: pointer;
    transition: all 0.3s ease;
    position: relative;
}
.nav-item:hover {
    transform: translateX(5px);
}
.nav-item.active {
    transform: translateX(10px);
}
.nav-item.active a,
.nav-item:hover a {
    background: linear-gradient(135deg, #B86ADF 0%, #FF6C63 50%, #FFB147 100%);
    -webkit-background-clip: text;
    -webkit-text-fill-color: transparent;
    background-clip: text;
}
.nav-item.active a {
    font-weight: 600;
}
.nav-item.active::before {
    content: '';
    position: absolute;
    left: -15px;
    top: 50%;
    transform: translateY(-50%);
    width: 4px;
    height: 25px;
    background: linear-gradient(135deg, #B86ADF 0%, #FF6C63 50%, #FFB147 100%);
    border-radius: 2px;
    animation: slideIn 0.3s ease;
}
@keyframes slideIn {
    from { width: 0; opacity: 0; }
    to { width: 4px; opacity: 1; }
}
@media (max-width: 768px) {
    .nav-item.active::before {
        left: -10px;
        height: 20px;
    }
}
`

// LayoutID is the element id of the page layout style block.
const LayoutID = "slidedeck-layout"

// LayoutCSS lays out the sidebar, the overlay and the sections.
const LayoutCSS = `
*, *::before, *::after { box-sizing: border-box; }
body {
    margin: 0;
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    background: #0f0f14;
    color: #e8e8f0;
}
.layout { display: flex; min-height: 100vh; }
.sidebar {
    width: 240px;
    padding: 2rem 1.5rem;
    background: #16161f;
}
.sidebar ul { list-style: none; padding: 0 0 0 15px; margin: 0; }
.nav-item { margin: 0.75rem 0; }
.nav-item a { color: inherit; text-decoration: none; letter-spacing: 0.08em; }
.menu-toggle { display: none; }
.mobile-overlay {
    display: none;
    position: fixed;
    inset: 0;
    background: rgba(0, 0, 0, 0.5);
    z-index: 10;
}
.mobile-overlay.active { display: block; }
.main-sections { flex: 1; position: relative; }
.main-sections > main { height: 100vh; overflow-y: auto; padding: 3rem; }
.section-body pre { overflow-x: auto; padding: 1rem; border-radius: 6px; }
@media (max-width: 768px) {
    .menu-toggle { display: block; position: fixed; top: 1rem; left: 1rem; z-index: 30; }
    .sidebar {
        position: fixed;
        top: 0;
        bottom: 0;
        left: -260px;
        z-index: 20;
        transition: left 0.3s ease;
    }
    .sidebar.active { left: 0; }
}
`
